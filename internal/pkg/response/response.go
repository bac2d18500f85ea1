package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// apiError carries a service error code through proxyutil's envelope.
type apiError struct {
	code uint32
	msg  string
}

func (e apiError) Error() string { return e.msg }
func (e apiError) Code() uint32  { return e.code }

func AsCodeErr(code uint32, msg string) error {
	return apiError{code: code, msg: msg}
}

// Success writes the standard {code:0, data:...} envelope.
func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error writes an error envelope. The HTTP status stays 200; clients
// dispatch on the embedded code.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, AsCodeErr(uint32(code), message))
}
