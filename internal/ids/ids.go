// Package ids builds and encodes the composite identifiers used by the
// cloud data API. A component identifier is a tilde-separated composite of
// the entity kind, the active space collection id, the model asset id, and
// (for version ids) the snapshot id, encoded as URL-safe base64 with the
// padding stripped.
package ids

import (
	"encoding/base64"
	"fmt"
)

const componentKind = "comp"

// Encode returns the URL-safe base64 encoding of raw without padding.
func Encode(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode reverses Encode. Ids produced with standard padded encoding are
// accepted as well.
func Decode(id string) (string, error) {
	for len(id) > 0 && id[len(id)-1] == '=' {
		id = id[:len(id)-1]
	}
	b, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return "", fmt.Errorf("ids: decode %q: %w", id, err)
	}
	return string(b), nil
}

// Component returns the version-independent component identifier. The
// snapshot field is left empty, which keeps the trailing separator in the
// composite key.
func Component(collectionID, assetID string) string {
	return Encode(fmt.Sprintf("%s~%s~%s~~", componentKind, collectionID, assetID))
}

// ComponentVersion returns the component identifier pinned to one snapshot.
func ComponentVersion(collectionID, assetID, snapshotID string) string {
	return Encode(fmt.Sprintf("%s~%s~%s~%s", componentKind, collectionID, assetID, snapshotID))
}
