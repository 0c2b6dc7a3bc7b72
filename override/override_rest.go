package override

import (
	"net/http"

	"lexgate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathUserOverrides = "/v1/user-overrides"

type overrideQuery struct {
	UserID types.ID `form:"userId" json:"-"`
}

func RegisterUserOverridesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathUserOverrides, middleWares...)
	g.GET("", handleQueryOverrides)
	g.POST("", handleSetOverride)
	g.DELETE(":overrideId", handleDeleteOverride)
}

func handleQueryOverrides(c *gin.Context) {
	query := overrideQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	sec := session.ExtractSessionFromGinContext(c)
	userId := query.UserID
	if userId == 0 {
		userId = sec.Identity.ID
	}
	overrides, err := QueryOverridesFunc(userId, sec)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, overrides)
}

func handleSetOverride(c *gin.Context) {
	creation := OverrideCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(err)
	}
	record, err := SetOverrideFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleDeleteOverride(c *gin.Context) {
	id, err := types.ParseID(c.Param("overrideId"))
	if err != nil {
		panic(err)
	}
	if err := DeleteOverrideFunc(id, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
