package domain

// Firm roles known to the dashboard. The decision core treats an unknown role
// as no-role: it simply never matches a role pattern or a defaults row.
const (
	RoleOwner      = "owner"
	RoleAdmin      = "admin"
	RolePartner    = "partner"
	RoleLawyer     = "lawyer"
	RoleParalegal  = "paralegal"
	RoleSecretary  = "secretary"
	RoleAccountant = "accountant"
)

// Module keys of the dashboard screens. These seed the role-defaults matrix;
// evaluation itself accepts any resource type and denies unknown ones by
// absence of a matching rule.
const (
	ModuleCases           = "cases"
	ModuleClients         = "clients"
	ModuleLeads           = "leads"
	ModuleDocuments       = "documents"
	ModuleTasks           = "tasks"
	ModuleCalendar        = "calendar"
	ModuleTimeEntries     = "time_entries"
	ModuleInvoices        = "finance.invoices"
	ModulePayments        = "finance.payments"
	ModuleExpenses        = "finance.expenses"
	ModuleReports         = "reports"
	ModuleSettings        = "settings"
	ModuleSettingsBilling = "settings.billing"
	ModuleTeam            = "team"
	ModuleHR              = "hr"
)

func IsAdminRole(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}
