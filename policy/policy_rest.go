package policy

import (
	"net/http"

	"lexgate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathPolicies = "/v1/policies"

func RegisterPoliciesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathPolicies, middleWares...)
	g.GET("", handleQueryPolicies)
	g.POST("", handleCreatePolicy)
	g.PUT(":policyId", handleUpdatePolicy)
	g.DELETE(":policyId", handleDeletePolicy)
}

func handleQueryPolicies(c *gin.Context) {
	policies, err := QueryPoliciesFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, policies)
}

func handleCreatePolicy(c *gin.Context) {
	creation := PolicyCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(err)
	}
	record, err := CreatePolicyFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleUpdatePolicy(c *gin.Context) {
	id, err := types.ParseID(c.Param("policyId"))
	if err != nil {
		panic(err)
	}
	updating := PolicyUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(err)
	}
	record, err := UpdatePolicyFunc(id, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeletePolicy(c *gin.Context) {
	id, err := types.ParseID(c.Param("policyId"))
	if err != nil {
		panic(err)
	}
	if err := DeletePolicyFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
