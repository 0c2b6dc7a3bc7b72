package account

import (
	"net/http"

	"lexgate/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathUsers = "/v1/users"

func RegisterUsersRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathUsers, middleWares...)
	g.GET("", handleQueryUsers)
	g.POST("", handleCreateUser)
}

func handleQueryUsers(c *gin.Context) {
	users, err := QueryUsersFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, users)
}

func handleCreateUser(c *gin.Context) {
	creation := UserCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(err)
	}
	user, err := CreateUserFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, user)
}
