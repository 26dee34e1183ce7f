package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Request layer.
	ErrParse          = "E_PARSE"
	ErrBadBoard       = "E_BAD_BOARD"
	ErrPresetNotFound = "E_PRESET_NOT_FOUND"
	ErrBusy           = "E_BUSY"
	ErrRateLimit      = "E_RATE_LIMIT"
	ErrInternal       = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrParse:           {},
	ErrBadBoard:        {},
	ErrPresetNotFound:  {},
	ErrBusy:            {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
