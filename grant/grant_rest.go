package grant

import (
	"net/http"

	"lexgate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathResourceAccess = "/v1/resource-access"

type grantQuery struct {
	UserID types.ID `form:"userId" json:"-"`
}

func RegisterResourceAccessRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathResourceAccess, middleWares...)
	g.GET("", handleQueryResourceAccess)
	g.POST("", handleGrantAccess)
	g.POST("/revocations", handleRevokeAccess)
}

func handleQueryResourceAccess(c *gin.Context) {
	query := grantQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	sec := session.ExtractSessionFromGinContext(c)
	userId := query.UserID
	if userId == 0 {
		userId = sec.Identity.ID
	}
	records, err := QueryResourceAccessFunc(userId, sec)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleGrantAccess(c *gin.Context) {
	creation := GrantCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(err)
	}
	record, err := GrantAccessFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleRevokeAccess(c *gin.Context) {
	revoking := GrantRevoking{}
	if err := c.ShouldBindBodyWith(&revoking, binding.JSON); err != nil {
		panic(err)
	}
	if err := RevokeAccessFunc(&revoking, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
