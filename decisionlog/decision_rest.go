package decisionlog

import (
	"net/http"

	"lexgate/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathDecisions            = "/v1/decisions"
	PathDecisionSearches     = "/v1/decision-searches"
	PathDecisionIndexRequest = "/v1/decision-index-requests"
	PathDecisionExports      = "/v1/decision-exports"
)

func RegisterDecisionLogRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathDecisions, middleWares...)
	g.GET("", handleQueryDecisions)

	s := r.Group(PathDecisionSearches, middleWares...)
	s.GET("", handleSearchDecisions)

	i := r.Group(PathDecisionIndexRequest, middleWares...)
	i.POST("", handleReindexRequest)

	e := r.Group(PathDecisionExports, middleWares...)
	e.POST("", handleExportDecisions)
}

func handleQueryDecisions(c *gin.Context) {
	query := DecisionQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	records, err := QueryDecisionsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleSearchDecisions(c *gin.Context) {
	keyword := c.Query("query")
	records, err := SearchDecisionsFunc(keyword, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleReindexRequest(c *gin.Context) {
	success, err := ScheduleNewReindexRunFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"result": success})
}

func handleExportDecisions(c *gin.Context) {
	query := DecisionQuery{}
	if err := c.ShouldBindBodyWith(&query, binding.JSON); err != nil {
		panic(err)
	}
	key, err := ExportDecisionsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, gin.H{"objectKey": key})
}
