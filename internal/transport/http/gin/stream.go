package httpgin

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	redisrepo "github.com/kirinyoku/busgo/internal/repository/redis"
	"github.com/kirinyoku/busgo/internal/service"
)

const streamHeartbeat = 25 * time.Second

// @Summary  Stream seat availability (server-sent events)
// @Param    id  path  int  true  "Schedule ID"
// @Produce  text/event-stream
// @Success  200  {object}  domain.Availability  "event: availability"
// @Failure  404  {object}  ErrorResponse
// @Failure  503  {object}  ErrorResponse  "live updates need Redis"
// @Router   /schedules/{id}/availability/stream [get]
func handleAvailabilityStream(
	svcs *service.Services,
	pubsub *redisrepo.SchedulesPubSub,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		if pubsub == nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "live updates are not available"})
			return
		}

		ctx := c.Request.Context()

		// Subscribe before the snapshot so no change between the two is lost.
		changed, err := pubsub.Listen(ctx)
		if err != nil {
			logger.Warn("availability subscription failed", "schedule_id", id, "error", err)
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "live updates are not available"})
			return
		}

		first, err := svcs.Query.FreshAvailability(ctx, id)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.SSEvent("availability", first)
		c.Writer.Flush()

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case scheduleID, ok := <-changed:
				if !ok {
					return false
				}
				if scheduleID != id {
					return true
				}
				a, err := svcs.Query.FreshAvailability(ctx, id)
				if err != nil {
					logger.Warn("availability refresh failed", "schedule_id", id, "error", err)
					return true
				}
				c.SSEvent("availability", a)
				return true
			case <-heartbeat.C:
				c.SSEvent("ping", time.Now().Unix())
				return true
			}
		})
	}
}
