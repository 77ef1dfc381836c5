package validation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"hash"

	"github.com/aidanvyas/asset-pricing-code/pkg/contracts/domain"
)

// Fingerprints identifies the exact dataset a run consumed, one SHA-256 hex
// digest per input table. Rows are hashed in their JSON encoding and in
// loader order: the row order is part of the dataset's identity.
type Fingerprints struct {
	Securities string `json:"securities"`
	Accounting string `json:"accounting"`
	Links      string `json:"links"`
	Delistings string `json:"delistings"`
	RiskFree   string `json:"risk_free"`
	Reference  string `json:"reference"`
}

// Fingerprint hashes every table of the dataset.
func Fingerprint(ds domain.Dataset) Fingerprints {
	return Fingerprints{
		Securities: hashSecurities(ds.Securities),
		Accounting: hashAccounting(ds.Accounting),
		Links:      hashLinks(ds.Links),
		Delistings: hashDelistings(ds.Delistings),
		RiskFree:   hashReference([]domain.ReferenceSeries{ds.RiskFree}),
		Reference:  hashReference(ds.Reference),
	}
}

func hashSecurities(observations []domain.SecurityObservation) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, o := range observations {
		_ = enc.Encode(o)
	}
	return digest(h)
}

func hashAccounting(records []domain.AccountingRecord) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, r := range records {
		_ = enc.Encode(r)
	}
	return digest(h)
}

func hashLinks(links []domain.Link) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, l := range links {
		_ = enc.Encode(l)
	}
	return digest(h)
}

func hashDelistings(events []domain.DelistingEvent) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, e := range events {
		_ = enc.Encode(e)
	}
	return digest(h)
}

func hashReference(series []domain.ReferenceSeries) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, s := range series {
		_ = enc.Encode(s)
	}
	return digest(h)
}

func digest(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}
