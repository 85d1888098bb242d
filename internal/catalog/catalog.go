// Package catalog is the client-side registry of marketplace services:
// slugs, endpoint path styles, display labels, fees and the submission-id
// prefixes each specialized store owns. The registry order is fixed and is
// part of the aggregation contract: specialized stores are always
// processed in this order.
package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// PathStyle selects which endpoint family a service was mounted under.
// Older services live at /service/<slug>/..., newer ones at /<slug>/...
type PathStyle int

const (
	PathService PathStyle = iota // /service/<slug>/apply
	PathRoot                     // /<slug>/apply
)

// Service describes one business service offered by the marketplace.
type Service struct {
	Slug  string
	Name  string
	Style PathStyle

	// IDPrefixes are the uppercase submission-id prefixes this store owns;
	// NameTags are lowercase fragments of service names it owns. Both feed
	// the generic-store denylist.
	IDPrefixes []string
	NameTags   []string

	// Fee is the listed filing fee in INR.
	Fee decimal.Decimal

	// Label builds the human-readable service name for one record, often
	// embedding a sub-field such as the plan or license type.
	Label func(fields map[string]any) string
}

// ApplyPath returns the submission endpoint for this service.
func (s Service) ApplyPath() string {
	if s.Style == PathRoot {
		return fmt.Sprintf("/%s/apply", s.Slug)
	}
	return fmt.Sprintf("/service/%s/apply", s.Slug)
}

// StatusPath returns the status-update endpoint for one submission.
func (s Service) StatusPath(id string) string {
	if s.Style == PathRoot {
		return fmt.Sprintf("/%s/%s/status", s.Slug, url.PathEscape(id))
	}
	return fmt.Sprintf("/service/%s/%s/status", s.Slug, url.PathEscape(id))
}

// ApplicationsPath returns the specialized store's my-applications
// endpoint for the given user.
func (s Service) ApplicationsPath(email string) string {
	return fmt.Sprintf("/%s/my-applications?email=%s", s.Slug, url.QueryEscape(email))
}

func staticLabel(name string) func(map[string]any) string {
	return func(map[string]any) string { return name }
}

// fieldLabel appends a sub-field (plan, license type, ...) when present.
func fieldLabel(name, field string) func(map[string]any) string {
	return func(fields map[string]any) string {
		if v, ok := fields[field].(string); ok && v != "" {
			return fmt.Sprintf("%s (%s)", name, v)
		}
		return name
	}
}

func inr(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount)
}

// registry holds every specialized store in its fixed processing order.
// Appending is safe; reordering changes which record wins an id collision
// during aggregation.
var registry = []Service{
	{Slug: "pvt-ltd", Name: "Private Limited Company", Style: PathService, IDPrefixes: []string{"PVT-"}, NameTags: []string{"private limited"}, Fee: inr(6999), Label: fieldLabel("Private Limited Company", "plan")},
	{Slug: "llp", Name: "Limited Liability Partnership", Style: PathService, IDPrefixes: []string{"LLP-"}, NameTags: []string{"liability partnership"}, Fee: inr(5999), Label: staticLabel("Limited Liability Partnership")},
	{Slug: "opc", Name: "One Person Company", Style: PathService, IDPrefixes: []string{"OPC-"}, NameTags: []string{"one person company"}, Fee: inr(4999), Label: staticLabel("One Person Company")},
	{Slug: "partnership", Name: "Partnership Firm", Style: PathService, IDPrefixes: []string{"PRT-"}, NameTags: []string{"partnership firm"}, Fee: inr(2999), Label: staticLabel("Partnership Firm")},
	{Slug: "sole-proprietorship", Name: "Sole Proprietorship", Style: PathService, IDPrefixes: []string{"SP-"}, NameTags: []string{"sole proprietorship"}, Fee: inr(1999), Label: staticLabel("Sole Proprietorship")},
	{Slug: "section8", Name: "Section 8 Company", Style: PathService, IDPrefixes: []string{"SEC8-"}, NameTags: []string{"section 8"}, Fee: inr(9999), Label: staticLabel("Section 8 Company")},
	{Slug: "society", Name: "Society Registration", Style: PathService, IDPrefixes: []string{"SOC-"}, NameTags: []string{"society registration"}, Fee: inr(7999), Label: staticLabel("Society Registration")},
	{Slug: "trust", Name: "Trust Registration", Style: PathService, IDPrefixes: []string{"TRST-"}, NameTags: []string{"trust registration"}, Fee: inr(7999), Label: staticLabel("Trust Registration")},
	{Slug: "fssai", Name: "FSSAI License", Style: PathRoot, IDPrefixes: []string{"FSSAI"}, NameTags: []string{"fssai"}, Fee: inr(2499), Label: fieldLabel("FSSAI License", "licenseType")},
	{Slug: "trade-license", Name: "Trade License", Style: PathRoot, IDPrefixes: []string{"TL-"}, NameTags: []string{"trade license"}, Fee: inr(3499), Label: fieldLabel("Trade License", "licenseType")},
	{Slug: "fire-noc", Name: "Fire NOC", Style: PathRoot, IDPrefixes: []string{"FIRE-"}, NameTags: []string{"fire noc"}, Fee: inr(4499), Label: staticLabel("Fire NOC")},
	{Slug: "drug-license", Name: "Drug License", Style: PathRoot, IDPrefixes: []string{"DRUG-"}, NameTags: []string{"drug license"}, Fee: inr(8999), Label: fieldLabel("Drug License", "licenseType")},
	{Slug: "pollution-noc", Name: "Pollution Control NOC", Style: PathRoot, IDPrefixes: []string{"POL-"}, NameTags: []string{"pollution"}, Fee: inr(5499), Label: staticLabel("Pollution Control NOC")},
	{Slug: "shop-establishment", Name: "Shop & Establishment License", Style: PathRoot, IDPrefixes: []string{"SE-"}, NameTags: []string{"shop", "establishment"}, Fee: inr(1999), Label: staticLabel("Shop & Establishment License")},
	{Slug: "labour-license", Name: "Labour License", Style: PathRoot, IDPrefixes: []string{"LAB-"}, NameTags: []string{"labour license"}, Fee: inr(4999), Label: staticLabel("Labour License")},
	{Slug: "gst-registration", Name: "GST Registration", Style: PathService, IDPrefixes: []string{"GSTR-"}, NameTags: []string{"gst registration"}, Fee: inr(1499), Label: staticLabel("GST Registration")},
	{Slug: "gst-filing", Name: "GST Return Filing", Style: PathService, IDPrefixes: []string{"GSTF-"}, NameTags: []string{"gst return", "gst filing"}, Fee: inr(999), Label: fieldLabel("GST Return Filing", "plan")},
	{Slug: "itr-filing", Name: "Income Tax Return Filing", Style: PathService, IDPrefixes: []string{"ITR-"}, NameTags: []string{"income tax return"}, Fee: inr(1299), Label: fieldLabel("Income Tax Return Filing", "plan")},
	{Slug: "tds-return", Name: "TDS Return Filing", Style: PathService, IDPrefixes: []string{"TDS-"}, NameTags: []string{"tds return"}, Fee: inr(1499), Label: staticLabel("TDS Return Filing")},
	{Slug: "professional-tax", Name: "Professional Tax Registration", Style: PathService, IDPrefixes: []string{"PT-"}, NameTags: []string{"professional tax"}, Fee: inr(2499), Label: staticLabel("Professional Tax Registration")},
	{Slug: "pf-registration", Name: "PF Registration", Style: PathRoot, IDPrefixes: []string{"PF-"}, NameTags: []string{"pf registration", "provident fund"}, Fee: inr(3999), Label: staticLabel("PF Registration")},
	{Slug: "esi-registration", Name: "ESI Registration", Style: PathRoot, IDPrefixes: []string{"ESI-"}, NameTags: []string{"esi registration"}, Fee: inr(3999), Label: staticLabel("ESI Registration")},
	{Slug: "msme", Name: "MSME / Udyam Registration", Style: PathRoot, IDPrefixes: []string{"MSME-"}, NameTags: []string{"msme", "udyam"}, Fee: inr(999), Label: staticLabel("MSME / Udyam Registration")},
	{Slug: "iec", Name: "Import Export Code", Style: PathRoot, IDPrefixes: []string{"IEC-"}, NameTags: []string{"import export"}, Fee: inr(2499), Label: staticLabel("Import Export Code")},
	{Slug: "iso", Name: "ISO Certification", Style: PathRoot, IDPrefixes: []string{"ISO-"}, NameTags: []string{"iso certification"}, Fee: inr(5999), Label: fieldLabel("ISO Certification", "standard")},
	{Slug: "trademark", Name: "Trademark Registration", Style: PathService, IDPrefixes: []string{"TM-"}, NameTags: []string{"trademark"}, Fee: inr(6999), Label: fieldLabel("Trademark Registration", "class")},
	{Slug: "copyright", Name: "Copyright Registration", Style: PathService, IDPrefixes: []string{"CR-"}, NameTags: []string{"copyright"}, Fee: inr(4999), Label: staticLabel("Copyright Registration")},
	{Slug: "patent", Name: "Patent Filing", Style: PathService, IDPrefixes: []string{"PAT-"}, NameTags: []string{"patent"}, Fee: inr(24999), Label: fieldLabel("Patent Filing", "plan")},
	{Slug: "dsc", Name: "Digital Signature Certificate", Style: PathRoot, IDPrefixes: []string{"DSC-"}, NameTags: []string{"digital signature"}, Fee: inr(1499), Label: fieldLabel("Digital Signature Certificate", "class")},
	{Slug: "12a-80g", Name: "12A & 80G Registration", Style: PathRoot, IDPrefixes: []string{"12A-", "80G-"}, NameTags: []string{"12a", "80g"}, Fee: inr(9999), Label: staticLabel("12A & 80G Registration")},
	{Slug: "legal-notice", Name: "Legal Notice Drafting", Style: PathService, IDPrefixes: []string{"LN-"}, NameTags: []string{"legal notice"}, Fee: inr(1999), Label: staticLabel("Legal Notice Drafting")},
}

var bySlug = func() map[string]Service {
	m := make(map[string]Service, len(registry))
	for _, s := range registry {
		m[s.Slug] = s
	}
	return m
}()

// All returns every specialized service in fixed processing order. Callers
// must not mutate the returned slice.
func All() []Service {
	return registry
}

// BySlug looks up one service.
func BySlug(slug string) (Service, bool) {
	s, ok := bySlug[slug]
	return s, ok
}

// Denylist identifies generic-store records that actually belong to one of
// the specialized stores and would otherwise be double-counted.
type Denylist struct {
	prefixes []string // uppercase
	tags     []string // lowercase
}

// GenericDenylist collects the id prefixes and name tags of every
// specialized store.
func GenericDenylist() Denylist {
	var d Denylist
	for _, s := range registry {
		d.prefixes = append(d.prefixes, s.IDPrefixes...)
		d.tags = append(d.tags, s.NameTags...)
	}
	return d
}

// Matches reports whether a generic-store record with the given submission
// id and service name belongs to a specialized store. The id check is an
// uppercase prefix match; the name check is a lowercase substring match.
func (d Denylist) Matches(submissionID, serviceName string) bool {
	id := strings.ToUpper(submissionID)
	for _, p := range d.prefixes {
		if p != "" && strings.HasPrefix(id, p) {
			return true
		}
	}
	name := strings.ToLower(serviceName)
	if name == "" {
		return false
	}
	for _, tag := range d.tags {
		if tag != "" && strings.Contains(name, tag) {
			return true
		}
	}
	return false
}
