package scorer

import (
	"crypto/sha256"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// ConfigHash returns a short stable hash of any JSON-serializable table,
// used to version cached reports against the tables that produced them.
func ConfigHash(cfg any) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", eris.Wrap(err, "scorer: hash tables")
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16]), nil // 32 hex chars
}
