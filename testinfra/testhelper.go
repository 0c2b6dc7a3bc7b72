package testinfra

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"time"

	"lexgate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// ExecuteRequest runs the request against the router and returns the
// response status, body and headers.
func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, http.Header) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	resp := w.Result()
	defer resp.Body.Close()
	bodyBytes, _ := ioutil.ReadAll(resp.Body)
	return resp.StatusCode, string(bodyBytes), resp.Header
}

// BuildSecCtx builds a security context for tests.
func BuildSecCtx(uid types.ID, role string) *session.Session {
	return &session.Session{
		Token:       "test-token",
		Identity:    session.Identity{ID: uid, Name: "user" + uid.String()},
		Role:        role,
		SigningTime: time.Now(),
		Context:     context.Background(),
	}
}
