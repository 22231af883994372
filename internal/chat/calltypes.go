package chat

// CallMediaType is the negotiated media of a call.
type CallMediaType string

const (
	MediaAudio CallMediaType = "audio"
	MediaVideo CallMediaType = "video"
)

// CallCapabilities advertises what the inviting peer supports.
type CallCapabilities struct {
	Encryption bool `json:"encryption"`
}

// CallType is media plus capabilities, as carried in invitations.
type CallType struct {
	Media        CallMediaType    `json:"media"`
	Capabilities CallCapabilities `json:"capabilities"`
}

// WebRTCSession carries an SDP blob plus batched ICE candidates.
type WebRTCSession struct {
	RTCSession       string `json:"rtcSession"`
	RTCIceCandidates string `json:"rtcIceCandidates"`
}

// WebRTCExtraInfo carries late ICE candidates.
type WebRTCExtraInfo struct {
	RTCIceCandidates string `json:"rtcIceCandidates"`
}

// WebRTCCallOffer is the remote peer's offer with its declared call type.
type WebRTCCallOffer struct {
	CallType   CallType      `json:"callType"`
	RTCSession WebRTCSession `json:"rtcSession"`
}

// RcvCallInvitation is a pending inbound call.
type RcvCallInvitation struct {
	Contact   Contact  `json:"contact"`
	CallType  CallType `json:"callType"`
	SharedKey string   `json:"sharedKey,omitempty"`
}

// CallStatusAPI values reported back to the engine via APICallStatus.
type CallStatusAPI string

const (
	CallStatusConnected CallStatusAPI = "connected"
	CallStatusEnded     CallStatusAPI = "ended"
	CallStatusError     CallStatusAPI = "error"
)
