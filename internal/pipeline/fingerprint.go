package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/race-edge/internal/models"
)

// decisionNamespace seeds name-based decision and race UUIDs
var decisionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:race-edge:decision"))

type fingerprintPayload struct {
	Input  models.RaceInput `json:"input"`
	Policy Policy           `json:"policy"`
}

// Fingerprint returns a stable content hash of an input and the policy it
// runs under. It is the decision cache key. Inputs that cannot be encoded,
// such as non-finite floats, return an error instead of a shared key.
func Fingerprint(in models.RaceInput, policy Policy) (string, error) {
	data, err := json.Marshal(fingerprintPayload{Input: in, Policy: policy})
	if err != nil {
		return "", fmt.Errorf("fingerprint race %s: %w", in.RaceID, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// DecisionID derives the decision UUID from a fingerprint
func DecisionID(fingerprint string) string {
	return uuid.NewSHA1(decisionNamespace, []byte(fingerprint)).String()
}

// RaceID derives a race UUID for inputs that carry none. Participants and
// budget are hashed so the same anonymous race keeps the same id.
func RaceID(in models.RaceInput) (string, error) {
	in.RaceID = ""
	in.RiskTolerance = nil
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("derive race id: %w", err)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, data).String(), nil
}
