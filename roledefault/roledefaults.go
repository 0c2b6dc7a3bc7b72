package roledefault

import (
	"context"

	"lexgate/domain"
	"lexgate/persistence"
)

// RoleDefault is one row of the static role → module permission matrix. The
// matrix is seeded at deploy time and loaded once at startup; the decision
// engine never writes it.
type RoleDefault struct {
	ID           uint64        `json:"id" gorm:"primary_key;AUTO_INCREMENT"`
	Role         string        `json:"role" gorm:"index:for_lookup"`
	ResourceType string        `json:"resourceType" gorm:"index:for_lookup"`
	MaxAction    domain.Action `json:"maxAction"`
}

func (r *RoleDefault) TableName() string {
	return "role_defaults"
}

var (
	matrix = map[string]domain.Action{}

	MaxActionFunc = MaxAction
)

func matrixKey(role, resourceType string) string {
	return role + "/" + resourceType
}

// MaxAction returns the strongest action the role holds on the resource type.
// Unknown pairs return ok=false, which stage 4 treats as the empty set.
func MaxAction(role, resourceType string) (domain.Action, bool) {
	maxAction, found := matrix[matrixKey(role, resourceType)]
	return maxAction, found
}

// Bootstrap seeds the matrix table when empty and loads it into memory.
func Bootstrap() error {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())

	var count int
	if err := db.Model(&RoleDefault{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		for _, row := range seedRows() {
			record := row
			if err := db.Create(&record).Error; err != nil {
				return err
			}
		}
	}

	rows := []RoleDefault{}
	if err := db.Find(&rows).Error; err != nil {
		return err
	}
	loaded := map[string]domain.Action{}
	for _, row := range rows {
		loaded[matrixKey(row.Role, row.ResourceType)] = row.MaxAction
	}
	matrix = loaded
	return nil
}

// ReplaceMatrix swaps the in-memory matrix. Test hook.
func ReplaceMatrix(rows []RoleDefault) {
	loaded := map[string]domain.Action{}
	for _, row := range rows {
		loaded[matrixKey(row.Role, row.ResourceType)] = row.MaxAction
	}
	matrix = loaded
}

func allModules(role string, maxAction domain.Action) []RoleDefault {
	modules := []string{
		domain.ModuleCases, domain.ModuleClients, domain.ModuleLeads, domain.ModuleDocuments,
		domain.ModuleTasks, domain.ModuleCalendar, domain.ModuleTimeEntries,
		domain.ModuleInvoices, domain.ModulePayments, domain.ModuleExpenses,
		domain.ModuleReports, domain.ModuleSettings, domain.ModuleSettingsBilling,
		domain.ModuleTeam, domain.ModuleHR,
	}
	rows := make([]RoleDefault, 0, len(modules))
	for _, m := range modules {
		rows = append(rows, RoleDefault{Role: role, ResourceType: m, MaxAction: maxAction})
	}
	return rows
}

// seedRows mirrors the dashboard's firm role vocabulary: owners and admins
// manage everything, the other roles get scoped defaults.
func seedRows() []RoleDefault {
	rows := []RoleDefault{}
	rows = append(rows, allModules(domain.RoleOwner, domain.ActionManage)...)
	rows = append(rows, allModules(domain.RoleAdmin, domain.ActionManage)...)

	rows = append(rows,
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModuleCases, MaxAction: domain.ActionManage},
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModuleClients, MaxAction: domain.ActionManage},
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModuleLeads, MaxAction: domain.ActionManage},
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModuleDocuments, MaxAction: domain.ActionManage},
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModuleTasks, MaxAction: domain.ActionManage},
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModuleCalendar, MaxAction: domain.ActionManage},
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModuleTimeEntries, MaxAction: domain.ActionManage},
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModuleInvoices, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModulePayments, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModuleExpenses, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModuleReports, MaxAction: domain.ActionView},
		RoleDefault{Role: domain.RolePartner, ResourceType: domain.ModuleTeam, MaxAction: domain.ActionView},

		RoleDefault{Role: domain.RoleLawyer, ResourceType: domain.ModuleCases, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RoleLawyer, ResourceType: domain.ModuleClients, MaxAction: domain.ActionView},
		RoleDefault{Role: domain.RoleLawyer, ResourceType: domain.ModuleDocuments, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RoleLawyer, ResourceType: domain.ModuleTasks, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RoleLawyer, ResourceType: domain.ModuleCalendar, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RoleLawyer, ResourceType: domain.ModuleTimeEntries, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RoleLawyer, ResourceType: domain.ModuleReports, MaxAction: domain.ActionView},

		RoleDefault{Role: domain.RoleParalegal, ResourceType: domain.ModuleCases, MaxAction: domain.ActionView},
		RoleDefault{Role: domain.RoleParalegal, ResourceType: domain.ModuleDocuments, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RoleParalegal, ResourceType: domain.ModuleTasks, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RoleParalegal, ResourceType: domain.ModuleCalendar, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RoleParalegal, ResourceType: domain.ModuleTimeEntries, MaxAction: domain.ActionEdit},

		RoleDefault{Role: domain.RoleSecretary, ResourceType: domain.ModuleClients, MaxAction: domain.ActionCreate},
		RoleDefault{Role: domain.RoleSecretary, ResourceType: domain.ModuleCalendar, MaxAction: domain.ActionEdit},
		RoleDefault{Role: domain.RoleSecretary, ResourceType: domain.ModuleTasks, MaxAction: domain.ActionCreate},
		RoleDefault{Role: domain.RoleSecretary, ResourceType: domain.ModuleDocuments, MaxAction: domain.ActionView},

		RoleDefault{Role: domain.RoleAccountant, ResourceType: domain.ModuleInvoices, MaxAction: domain.ActionManage},
		RoleDefault{Role: domain.RoleAccountant, ResourceType: domain.ModulePayments, MaxAction: domain.ActionManage},
		RoleDefault{Role: domain.RoleAccountant, ResourceType: domain.ModuleExpenses, MaxAction: domain.ActionManage},
		RoleDefault{Role: domain.RoleAccountant, ResourceType: domain.ModuleReports, MaxAction: domain.ActionView},
	)
	return rows
}
