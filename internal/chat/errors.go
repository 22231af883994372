package chat

import (
	"encoding/json"
	"fmt"
)

// ChatErrorKind discriminates the top layer of the error taxonomy.
type ChatErrorKind string

const (
	ErrKindChat     ChatErrorKind = "error"
	ErrKindAgent    ChatErrorKind = "errorAgent"
	ErrKindStore    ChatErrorKind = "errorStore"
	ErrKindDatabase ChatErrorKind = "errorDatabase"
)

// ChatError is the engine's nested error envelope. It travels inside
// Response values and is never a Go error: call sites pattern-match on the
// sub-kinds they react to and surface everything else verbatim.
type ChatError struct {
	Type          ChatErrorKind      `json:"type"`
	ErrorType     *ChatErrorType     `json:"errorType,omitempty"`
	AgentError    *AgentErrorType    `json:"agentError,omitempty"`
	StoreError    *StoreErrorType    `json:"storeError,omitempty"`
	DatabaseError *DatabaseErrorType `json:"databaseError,omitempty"`
}

func (e ChatError) String() string {
	switch e.Type {
	case ErrKindChat:
		if e.ErrorType != nil {
			return "chat error: " + e.ErrorType.String()
		}
	case ErrKindAgent:
		if e.AgentError != nil {
			return "agent error: " + e.AgentError.String()
		}
	case ErrKindStore:
		if e.StoreError != nil {
			return "store error: " + e.StoreError.String()
		}
	case ErrKindDatabase:
		if e.DatabaseError != nil {
			return "database error: " + e.DatabaseError.String()
		}
	}
	return "error: " + string(e.Type)
}

// ChatErrorType is the chat-level sub-taxonomy.
type ChatErrorType struct {
	Type    string          `json:"type"`
	Message string          `json:"message,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

func (e ChatErrorType) String() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return e.Type
}

// Chat-level error kinds the dispatcher reacts to by name.
const (
	ChatErrNoActiveUser     = "noActiveUser"
	ChatErrActiveUserExists = "activeUserExists"
	ChatErrChatNotStarted   = "chatNotStarted"
	ChatErrInvalidConnReq   = "invalidConnReq"
	ChatErrCommandError     = "commandError"
)

// AgentErrorType is the agent/transport sub-taxonomy. The engine splits it
// further into command, connection, broker and protocol branches.
type AgentErrorType struct {
	Type      string           `json:"type"`
	CmdErr    string           `json:"cmdErr,omitempty"`
	ConnErr   string           `json:"connErr,omitempty"`
	BrokerErr *BrokerErrorType `json:"brokerErr,omitempty"`
	SMPErr    *SMPErrorType    `json:"smpErr,omitempty"`
}

func (e AgentErrorType) String() string {
	switch e.Type {
	case "CMD":
		return "CMD " + e.CmdErr
	case "CONN":
		return "CONN " + e.ConnErr
	case "BROKER":
		if e.BrokerErr != nil {
			return "BROKER " + e.BrokerErr.String()
		}
		return "BROKER"
	case "SMP":
		if e.SMPErr != nil {
			return "SMP " + e.SMPErr.String()
		}
		return "SMP"
	default:
		return e.Type
	}
}

// BrokerErrorType covers failures talking to messaging relays.
type BrokerErrorType struct {
	Type         string        `json:"type"`
	SMPErr       *SMPErrorType `json:"smpErr,omitempty"`
	TransportErr string        `json:"transportErr,omitempty"`
}

func (e BrokerErrorType) String() string {
	switch e.Type {
	case "RESPONSE":
		if e.SMPErr != nil {
			return "RESPONSE " + e.SMPErr.String()
		}
		return "RESPONSE"
	case "TRANSPORT":
		return "TRANSPORT " + e.TransportErr
	default:
		return e.Type
	}
}

// SMPErrorType covers protocol-level relay errors.
type SMPErrorType struct {
	Type string `json:"type"`
}

func (e SMPErrorType) String() string { return e.Type }

// StoreErrorType is the engine-store sub-taxonomy.
type StoreErrorType struct {
	Type        string `json:"type"`
	ContactName string `json:"contactName,omitempty"`
	GroupName   string `json:"groupName,omitempty"`
}

func (e StoreErrorType) String() string {
	switch {
	case e.ContactName != "":
		return fmt.Sprintf("%s (%s)", e.Type, e.ContactName)
	case e.GroupName != "":
		return fmt.Sprintf("%s (%s)", e.Type, e.GroupName)
	default:
		return e.Type
	}
}

// Store error kinds matched by name.
const (
	StoreErrDuplicateName           = "duplicateName"
	StoreErrContactNotFound         = "contactNotFound"
	StoreErrChatItemNotFound        = "chatItemNotFound"
	StoreErrUserContactLinkNotFound = "userContactLinkNotFound"
)

// DatabaseErrorType is the local database sub-taxonomy.
type DatabaseErrorType struct {
	Type string `json:"type"`
}

func (e DatabaseErrorType) String() string { return e.Type }

// IsAuthError reports whether the error means the peer refused the
// connection credentials (deleted contact, revoked link).
func (e ChatError) IsAuthError() bool {
	if e.Type != ErrKindAgent || e.AgentError == nil {
		return false
	}
	a := e.AgentError
	if a.Type == "SMP" && a.SMPErr != nil && a.SMPErr.Type == "AUTH" {
		return true
	}
	if a.Type == "BROKER" && a.BrokerErr != nil && a.BrokerErr.Type == "RESPONSE" &&
		a.BrokerErr.SMPErr != nil && a.BrokerErr.SMPErr.Type == "AUTH" {
		return true
	}
	return false
}

// IsNetworkTimeout reports a relay timeout, surfaced to users as
// "connection timeout" rather than a generic failure.
func (e ChatError) IsNetworkTimeout() bool {
	return e.Type == ErrKindAgent && e.AgentError != nil &&
		e.AgentError.Type == "BROKER" && e.AgentError.BrokerErr != nil &&
		e.AgentError.BrokerErr.Type == "TIMEOUT"
}

// IsNetworkError reports a relay network failure, surfaced as
// "connection error".
func (e ChatError) IsNetworkError() bool {
	return e.Type == ErrKindAgent && e.AgentError != nil &&
		e.AgentError.Type == "BROKER" && e.AgentError.BrokerErr != nil &&
		e.AgentError.BrokerErr.Type == "NETWORK"
}

// IsDuplicateName reports a duplicate display-name store error.
func (e ChatError) IsDuplicateName() bool {
	return e.Type == ErrKindStore && e.StoreError != nil &&
		e.StoreError.Type == StoreErrDuplicateName
}

// IsNotFound reports an entity-not-found store error.
func (e ChatError) IsNotFound() bool {
	if e.Type != ErrKindStore || e.StoreError == nil {
		return false
	}
	switch e.StoreError.Type {
	case StoreErrContactNotFound, StoreErrChatItemNotFound, StoreErrUserContactLinkNotFound:
		return true
	}
	return false
}
