package dispatch

import "fmt"

// HeaderAction is the message header naming the requested action.
const HeaderAction = "action"

// Action is one of the persistence operations a message can request.
type Action int

const (
	AllPages Action = iota + 1
	GetPage
	CreatePage
	SavePage
	DeletePage
)

var actionNames = map[Action]string{
	AllPages:   "all-pages",
	GetPage:    "get-page",
	CreatePage: "create-page",
	SavePage:   "save-page",
	DeletePage: "delete-page",
}

// Actions lists every action in declaration order.
func Actions() []Action {
	return []Action{AllPages, GetPage, CreatePage, SavePage, DeletePage}
}

// String returns the wire name of the action.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction maps a wire name to its Action.
func ParseAction(name string) (Action, bool) {
	for a, n := range actionNames {
		if n == name {
			return a, true
		}
	}
	return 0, false
}

// ErrorCode categorizes a failed message. The numeric values are part of the
// wire contract.
type ErrorCode int

const (
	// NoActionSpecified means the message had no action header.
	NoActionSpecified ErrorCode = iota
	// BadAction means the action header named no known action.
	BadAction
	// DBError means the store operation failed.
	DBError
)

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	switch c {
	case NoActionSpecified:
		return "NO_ACTION_SPECIFIED"
	case BadAction:
		return "BAD_ACTION"
	case DBError:
		return "DB_ERROR"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Failure is a categorized message failure.
type Failure struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// Result is the outcome of handling one message: a payload to reply with,
// or a Failure. Exactly one is set.
type Result struct {
	Payload any
	Failure *Failure
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Failure == nil
}

func succeeded(payload any) Result {
	return Result{Payload: payload}
}

func failed(code ErrorCode, message string) Result {
	return Result{Failure: &Failure{Code: code, Message: message}}
}
