package evaluation

import (
	"net/http"

	"lexgate/bizerror"
	"lexgate/domain"
	"lexgate/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathEvaluations = "/v1/evaluations"

type EvaluationRequest struct {
	Action   string `json:"action" binding:"required"`
	Resource struct {
		Type string `json:"type" binding:"required,lte=64"`
		ID   string `json:"id" binding:"omitempty,lte=64"`
	} `json:"resource" binding:"required"`

	// Subject is optional: admins may evaluate on behalf of another user
	// (the policy screens' "preview as user"); everyone else evaluates
	// their own session subject.
	Subject *domain.Subject `json:"subject"`
}

func RegisterEvaluationsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathEvaluations, middleWares...)
	g.POST("", handleEvaluate)
}

func handleEvaluate(c *gin.Context) {
	request := EvaluationRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(err)
	}

	sec := session.ExtractSessionFromGinContext(c)
	subject := sec.Subject()
	if request.Subject != nil {
		// only admins may evaluate a foreign subject
		if !sec.IsAdmin() && (request.Subject.UserID != subject.UserID || request.Subject.Role != subject.Role) {
			panic(bizerror.ErrForbidden)
		}
		subject = *request.Subject
	}

	action, err := domain.ParseAction(request.Action)
	if err != nil {
		panic(err)
	}

	decision, err := EvaluateFunc(&domain.AccessRequest{
		Subject:  subject,
		Action:   action,
		Resource: domain.Resource{Type: request.Resource.Type, ID: request.Resource.ID},
	})
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, decision)
}
