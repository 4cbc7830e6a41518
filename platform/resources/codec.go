package resources

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// The embedded backend keeps binary payloads inline in the record itself,
// encoded as a data URL so that the same PayloadRef field can also carry a
// plain https URL when the remote backend is active.

func encodeDataURL(mediaType string, payload []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(payload))
}

func decodeDataURL(ref string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: payload ref is not a data url", ErrInvalidPayload)
	}

	meta, body, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: malformed data url", ErrInvalidPayload)
	}

	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: data url is not base64 encoded", ErrInvalidPayload)
	}

	payload, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", nil, fmt.Errorf("%w: undecodable data url body: %v", ErrInvalidPayload, err)
	}

	return mediaType, payload, nil
}
