package workspace

// CallState is the vendor-reported state of a call.
type CallState string

const (
	CallStateRinging     CallState = "Ringing"
	CallStateDialing     CallState = "Dialing"
	CallStateEstablished CallState = "Established"
	CallStateHeld        CallState = "Held"
	CallStateReleased    CallState = "Released"
	CallStateUnknown     CallState = "Unknown"
)

// AgentWorkMode is the work mode reported on a Dn.
type AgentWorkMode string

const (
	WorkModeAfterCallWork    AgentWorkMode = "AfterCallWork"
	WorkModeAutoIn           AgentWorkMode = "AutoIn"
	WorkModeManualIn         AgentWorkMode = "ManualIn"
	WorkModeNoCallDisconnect AgentWorkMode = "NoCallDisconnect"
	WorkModeUnknown          AgentWorkMode = "Unknown"
)

// Call is a voice call owned by the vendor session.
type Call struct {
	ID       string    `json:"id"`
	State    CallState `json:"state"`
	CallType string    `json:"callType,omitempty"`
	ANI      string    `json:"ani,omitempty"`
	DNIS     string    `json:"dnis,omitempty"`
}

// Dn is the agent's voice device.
type Dn struct {
	Number     string        `json:"number"`
	AgentID    string        `json:"agentId,omitempty"`
	AgentState string        `json:"agentState,omitempty"`
	WorkMode   AgentWorkMode `json:"agentWorkMode,omitempty"`
}

// User is the identity returned by an initialized session.
type User struct {
	DBID       int    `json:"dbid,omitempty"`
	EmployeeID string `json:"employeeId"`
	AgentLogin string `json:"agentLogin"`
	UserName   string `json:"userName"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
}

// AgentID returns the identifier used when activating channels.
func (u User) AgentID() string {
	if u.EmployeeID != "" {
		return u.EmployeeID
	}
	return u.AgentLogin
}

// Target is a directory entry returned by a target search.
type Target struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Type   string `json:"type,omitempty"`
}

// CallStateChanged is delivered whenever a call changes state.
type CallStateChanged struct {
	Call Call `json:"call"`
}

// DnStateChanged is delivered whenever the agent's Dn changes.
type DnStateChanged struct {
	Dn Dn `json:"dn"`
}

type status struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

type envelope[T any] struct {
	Status status `json:"status"`
	Data   T      `json:"data"`
}

type sessionData struct {
	User User `json:"user"`
}

type targetsData struct {
	Targets    []Target `json:"targets"`
	TotalMatch int      `json:"totalMatches,omitempty"`
}

type request[T any] struct {
	Data T `json:"data"`
}

type activateChannelsData struct {
	AgentID string `json:"agentId"`
	Dn      string `json:"dn"`
}

type notReadyData struct {
	ReasonCode    string        `json:"reasonCode,omitempty"`
	AgentWorkMode AgentWorkMode `json:"agentWorkMode,omitempty"`
}
