package chat

import "encoding/json"

// respEnvelope is the outer wire frame. Push events carry no corr.
type respEnvelope struct {
	Resp json.RawMessage `json:"resp"`
	Corr string          `json:"corr"`
}

// DecodeResponse parses one engine payload. It is total: every input yields
// a Response. A recognized discriminator gets a strict typed decode; if the
// discriminator is unrecognized, or strict decoding fails, the payload
// degrades to an unknown response carrying the discriminator and the opaque
// body; if no discriminator can be located at all, the raw text is wrapped
// in an invalid response. corr is the correlation id of a command reply,
// empty for push events.
func DecodeResponse(data []byte) (Response, string) {
	var env respEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ChatRespInvalid(data), ""
	}
	body := env.Resp
	if len(body) == 0 {
		// Some engine builds push the resp object bare.
		body = data
	}
	respType, ok := discriminator(body)
	if !ok {
		return ChatRespInvalid(data), env.Corr
	}
	if !knownRespTypes[respType] {
		return ChatRespUnknown(respType, body), env.Corr
	}
	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return ChatRespUnknown(respType, body), env.Corr
	}
	r.Type = respType
	return r, env.Corr
}

func discriminator(raw []byte) (string, bool) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.Type == "" {
		return "", false
	}
	return probe.Type, true
}
