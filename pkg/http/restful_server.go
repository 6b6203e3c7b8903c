package http

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
)

const (
	HeaderOwnerID    = "X-Owner-ID"
	HeaderAdminToken = "X-Admin-Token"

	ctxKeyOwnerID = "owner_id"
)

type RestfulServer struct {
	Server *gin.Engine
	Core   iot.CoreAPI
	// nil disables ingest throttling
	Limiter *iot.IngestLimiter
	// empty leaves the admin routes open; the outer layer is trusted
	AdminToken string
}

func restfulLogger() *zap.Logger {
	return common.GetLoggerWith(common.LoggerNameRestfulServer)
}

func (rs *RestfulServer) allowIngest(sensorID string) bool {
	if rs.Limiter == nil {
		return true
	}
	return rs.Limiter.Allow(sensorID)
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// device agents post readings without an owner
	rs.Server.POST("/sensors/:sensor_id/readings", rs.PostReading)
	rs.Server.POST("/sensors/:sensor_id/limiter", rs.requireAdmin, rs.PostLimiter)
	rs.Server.GET("/sensors/:sensor_id/limiter", rs.requireAdmin, rs.GetLimiter)

	owned := rs.Server.Group("/", rs.requireOwner)
	{
		owned.GET("/sensors", rs.ListSensors)
		owned.POST("/sensors", rs.CreateSensor)
		owned.GET("/sensors/:sensor_id", rs.GetSensor)
		owned.PATCH("/sensors/:sensor_id", rs.UpdateSensor)
		owned.DELETE("/sensors/:sensor_id", rs.DeleteSensor)
		owned.POST("/sensors/:sensor_id/toggle", rs.ToggleAvailability)
		owned.GET("/sensors/:sensor_id/latest", rs.GetLatest)
		owned.GET("/sensors/:sensor_id/history", rs.GetHistory)

		owned.GET("/alerts", rs.GetAlerts)
		owned.POST("/alerts/:alert_id/ack", rs.AcknowledgeAlert)
		owned.POST("/alerts/:alert_id/resolve", rs.ResolveAlert)

		owned.GET("/predictions", rs.GetPredictions)
	}

	admin := rs.Server.Group("/admin", rs.requireAdmin)
	{
		admin.GET("/simulator", rs.GetSimulator)
		admin.PUT("/simulator", rs.PutSimulator)
	}
}

func (rs *RestfulServer) requireOwner(c *gin.Context) {
	ownerID := c.GetHeader(HeaderOwnerID)
	if ownerID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthenticated", "message": HeaderOwnerID + " header is required"})
		return
	}
	c.Set(ctxKeyOwnerID, ownerID)
	c.Next()
}

func (rs *RestfulServer) requireAdmin(c *gin.Context) {
	if rs.AdminToken != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader(HeaderAdminToken)), []byte(rs.AdminToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "forbidden", "message": "admin token required"})
		return
	}
	c.Next()
}

func ownerOf(c *gin.Context) string {
	return c.GetString(ctxKeyOwnerID)
}

// StatusOf maps a core error kind to an HTTP status.
func StatusOf(err error) int {
	switch iot.KindOf(err) {
	case iot.KindUnknownSensor, iot.KindUnknownAlert:
		return http.StatusNotFound
	case iot.KindUnauthorized:
		return http.StatusForbidden
	case iot.KindDuplicateName, iot.KindConflict:
		return http.StatusConflict
	case iot.KindInvalidInput:
		return http.StatusBadRequest
	case iot.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) gin.H {
	var e *iot.Error
	if !errors.As(err, &e) {
		return gin.H{"code": iot.KindInternal.String(), "message": "internal error"}
	}
	body := gin.H{"code": e.Code(), "message": e.Message}
	for key, v := range map[string]string{
		"sensor_id":      e.SensorID,
		"alert_id":       e.AlertID,
		"name":           e.Name,
		"state":          e.State,
		"correlation_id": e.CorrelationID,
	} {
		if v != "" {
			body[key] = v
		}
	}
	return body
}

func (rs *RestfulServer) fail(c *gin.Context, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		restfulLogger().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, errorBody(err))
}
