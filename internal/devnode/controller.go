package devnode

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxBodySize = 1 << 20

// HandleRPC serves the single POST endpoint. Node errors are reported with
// status 200 and an "error" field, like a real node does.
func HandleRPC(c *gin.Context) {
	node, ok := c.MustGet("node").(*Node)
	if !ok {
		slog.Error("Failed to get node from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	if err != nil {
		slog.Error("Failed to read RPC body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to parse JSON"})
		return
	}

	params := Params{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&params); err != nil {
		slog.Warn("Failed to decode RPC body", "error", err)
		c.JSON(http.StatusOK, gin.H{"error": "Unable to parse JSON"})
		return
	}

	action := params.String("action")
	span := trace.SpanFromContext(c.Request.Context())
	if span.IsRecording() {
		span.SetAttributes(attribute.String("rpc.action", action))
	}

	resp, err := node.Dispatch(action, params)
	if err != nil {
		slog.Debug("RPC action failed", "action", action, "error", err.Error())
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}
