package errno

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	switch typed := err.(type) {
	case *Errno:
		return typed.Code, typed.Message
	case Errno:
		return typed.Code, typed.Message
	default:
		return InternalServerError.Code, err.Error()
	}
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
)

// Validation Errors (20000+)
var (
	ErrValidation        = Errno{Code: 20001, Message: "Invalid or missing input"}
	ErrAmountNotPositive = Errno{Code: 20002, Message: "Amount must be greater than zero"}
	ErrUnsupportedProof  = Errno{Code: 20003, Message: "Unsupported proof file format"}
)

// Authorization Errors (21000+)
var (
	ErrUnauthorized = Errno{Code: 21001, Message: "Approval password does not match any member"}
)

// Token Errors (22000+)
var (
	ErrTokenInvalid  = Errno{Code: 22001, Message: "Approval token not found"}
	ErrTokenExpired  = Errno{Code: 22002, Message: "Approval token expired"}
	ErrTokenMismatch = Errno{Code: 22003, Message: "Approval token bound to a different record"}
)

// Not Found Errors (23000+)
var (
	ErrDepositNotFound = Errno{Code: 23001, Message: "Deposit not found"}
	ErrBurnNotFound    = Errno{Code: 23002, Message: "Burn request not found"}
	ErrBankNotFound    = Errno{Code: 23003, Message: "Bank not found"}
)

// External Service Errors (24000+)
var (
	ErrExternalService = Errno{Code: 24001, Message: "External service failure"}
	ErrChainProvider   = Errno{Code: 24002, Message: "Blockchain provider failure"}
	ErrVaultScrape     = Errno{Code: 24003, Message: "Vault balance scrape failure"}
)

// Conflict Errors (25000+)
var (
	ErrStateConflict = Errno{Code: 25001, Message: "Record was modified concurrently, transition not applied"}
)

// HTTPStatus maps an error code to the HTTP status class expected by handlers:
// validation 400, authorization/token 401, not-found 404, conflict 409, rest 500.
func HTTPStatus(code int) int {
	switch {
	case code == 0:
		return 200
	case code == ErrBind.Code || (code >= 20000 && code < 21000):
		return 400
	case code >= 21000 && code < 23000:
		return 401
	case code >= 23000 && code < 24000:
		return 404
	case code >= 25000 && code < 26000:
		return 409
	default:
		return 500
	}
}
