package httputil

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/stashbin/stashbin/internal/logging"
	"github.com/stashbin/stashbin/pkg/types"
)

type HTTPError struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// NewError maps a classified core error onto the transport. Validation
// errors keep their per-field violation lists.
func NewError(ctx *gin.Context, status int, err error) {
	logger := logging.FromContext(ctx.Request.Context())
	logger.Sugar().Error(err)
	if status == 0 {
		status = 500
	}

	out := HTTPError{
		Code:    status,
		Message: err.Error(),
	}
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		out.Message = "validation failed"
		out.Details = ve.Fields
	}
	ctx.JSON(status, out)
}
