package core

// Verdict is the final judgement for an analyzed email address.
type Verdict string

const (
	VerdictValid      Verdict = "valid"
	VerdictSuspicious Verdict = "suspicious"
	VerdictPhishing   Verdict = "phishing"
	VerdictInvalid    Verdict = "invalid"
)

// TLDCategory classifies a top-level domain by how its registry is queried.
type TLDCategory string

const (
	TLDCategoryASCIICCTLD TLDCategory = "ascii-cctld"
	TLDCategoryGeoTLD     TLDCategory = "geo-tld"
	TLDCategoryIDNCCTLD   TLDCategory = "idn-cctld"
	TLDCategoryGeneric    TLDCategory = "generic"
)

// Domain is the normalized form of a hostname. Immutable once constructed.
type Domain struct {
	Raw        string      `json:"raw"`
	Normalized string      `json:"normalized"`
	Base       string      `json:"base"`
	TLD        string      `json:"tld"`
	Category   TLDCategory `json:"category"`
}

// Root returns the registrable root of the domain (base label plus TLD).
func (d Domain) Root() string {
	if d.Base == "" || d.TLD == "" {
		return d.Normalized
	}
	return d.Base + "." + d.TLD
}

// BrandRecord describes one known brand in the registry. Read-only to the
// analysis pipeline; records are created and updated only through the
// bootstrap/seed path.
type BrandRecord struct {
	ID           string   `json:"id"`
	Sector       string   `json:"sector,omitempty"`
	CountryCode  string   `json:"country_code,omitempty"`
	KnownDomains []string `json:"known_domains"`
	OwnerTerms   []string `json:"owner_terms,omitempty"`
	DomainSearch string   `json:"domain_search"`
}

// RegistrantInfo is the resolved registrant of a domain. Organization is never
// empty: exhausted or redacted lookups still carry a placeholder organization
// so downstream consumers see a total function.
type RegistrantInfo struct {
	Organization     string `json:"organization"`
	RawOwner         string `json:"raw_owner,omitempty"`
	PrivacyProtected bool   `json:"privacy_protected"`
	ResolvedVia      string `json:"resolved_via,omitempty"`
}

// EvidenceType labels the rule family that produced an evidence entry.
type EvidenceType string

const (
	EvidenceBrandMatch       EvidenceType = "brand_match"
	EvidenceOwnerMatch       EvidenceType = "owner_match"
	EvidencePrivacyRedaction EvidenceType = "privacy_redaction"
	EvidencePersonalProvider EvidenceType = "personal_provider"
	EvidenceFormat           EvidenceType = "format"
)

// Evidence is one scored signal contributing to the verdict.
type Evidence struct {
	Type   EvidenceType `json:"type"`
	Value  string       `json:"value"`
	Score  float64      `json:"score"`
	Detail string       `json:"detail,omitempty"`
}

// Recognition is the outcome of mapping a domain to a claimed brand.
type Recognition struct {
	// Detected is the brand the domain exactly belongs to, if any.
	Detected *BrandRecord
	// Candidate is the brand the domain resembles without being one of its
	// known domains: a potential impersonation target.
	Candidate *BrandRecord
	// Score is the acceptance score for the winning match.
	Score float64
	// Exact reports whether the domain is one of the brand's known domains.
	Exact bool
	// PersonalProvider reports the freemail short-circuit.
	PersonalProvider bool
	ProviderName     string
	// Degraded reports that the brand registry was unavailable and
	// recognition ran against an empty index.
	Degraded bool
}

// Comparison reconciles recognition and registrant resolution into evidence.
type Comparison struct {
	Verdict             Verdict
	Detail              string
	Confidence          float64
	Labels              []string
	Evidences           []Evidence
	CompanyDetected     *string
	CompanyImpersonated *string
}

// AnalysisResult is the immutable outcome for one sanitize request.
//
// The wire field is spelled "veredict": the spelling is part of the public
// API contract and is kept as-is for client compatibility.
type AnalysisResult struct {
	RequestID           string     `json:"request_id"`
	Email               string     `json:"email"`
	Verdict             Verdict    `json:"veredict"`
	VerdictDetail       string     `json:"veredict_detail,omitempty"`
	CompanyImpersonated *string    `json:"company_impersonated"`
	CompanyDetected     *string    `json:"company_detected"`
	Confidence          float64    `json:"confidence"`
	Labels              []string   `json:"labels"`
	Evidences           []Evidence `json:"evidences"`
}
