package addon

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Series describes packaging conventions for one Odoo major version.
type Series struct {
	Version         string // e.g. "12.0"
	Major           int
	OdooRequirement string // requirement on the Odoo core distribution
	AddonDepVersion string // version specifier appended to addon requirements
	PythonRequires  string
	Python3         bool
}

// PackagePrefix is the distribution name prefix of addons of this series.
func (s *Series) PackagePrefix() string {
	return fmt.Sprintf("odoo%d-addon", s.Major)
}

// PackageName returns the distribution name of addonName in this series.
func (s *Series) PackageName(addonName string) string {
	return s.PackagePrefix() + "-" + addonName
}

var seriesTable = map[string]*Series{
	"8.0": {
		Version: "8.0", Major: 8,
		OdooRequirement: "odoo>=8.0a,<9.0a",
		AddonDepVersion: ">=8.0a,<9.0a",
		PythonRequires:  "~=2.7",
	},
	"9.0": {
		Version: "9.0", Major: 9,
		OdooRequirement: "odoo>=9.0a,<9.1a",
		AddonDepVersion: ">=9.0a,<9.1a",
		PythonRequires:  "~=2.7",
	},
	"10.0": {
		Version: "10.0", Major: 10,
		OdooRequirement: "odoo>=10.0,<10.1dev",
		AddonDepVersion: ">=10.0,<10.1dev",
		PythonRequires:  "~=2.7",
	},
	"11.0": {
		Version: "11.0", Major: 11,
		OdooRequirement: "odoo>=11.0a,<11.1dev",
		AddonDepVersion: ">=11.0dev,<11.1dev",
		PythonRequires:  ">=2.7,!=3.0.*,!=3.1.*,!=3.2.*,!=3.3.*,!=3.4.*",
		Python3:         true,
	},
}

func init() {
	pythons := map[int]string{12: ">=3.5", 13: ">=3.5", 14: ">=3.6", 15: ">=3.8", 16: ">=3.10", 17: ">=3.10"}
	for major, py := range pythons {
		v := fmt.Sprintf("%d.0", major)
		seriesTable[v] = &Series{
			Version:         v,
			Major:           major,
			OdooRequirement: fmt.Sprintf("odoo>=%d.0a,<%d.1dev", major, major),
			AddonDepVersion: fmt.Sprintf(">=%d.0dev,<%d.1dev", major, major),
			PythonRequires:  py,
			Python3:         true,
		}
	}
}

// LookupSeries returns the conventions of the given series ("12.0").
func LookupSeries(version string) (*Series, error) {
	s, ok := seriesTable[version]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported Odoo series %q (supported: %s)",
			ErrBadVersion, version, strings.Join(SupportedSeries(), ", "))
	}
	return s, nil
}

// SupportedSeries lists the known series in ascending order.
func SupportedSeries() []string {
	out := make([]string, 0, len(seriesTable))
	for v := range seriesTable {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.ParseFloat(out[i], 64)
		b, _ := strconv.ParseFloat(out[j], 64)
		return a < b
	})
	return out
}

// coreAddons are addons shipped with the Odoo core distribution; depending
// on them translates to a requirement on Odoo itself.
var coreAddons = map[string]bool{}

func init() {
	for _, name := range strings.Fields(`
		account account_accountant analytic auth_crypt auth_ldap auth_oauth
		auth_signup auth_totp barcodes base base_automation base_iban
		base_import base_setup base_sparse_field base_vat board bus calendar
		contacts crm decimal_precision delivery digest event fetchmail
		google_calendar hr hr_contract hr_expense hr_holidays hr_timesheet
		http_routing iap im_livechat l10n_generic_coa link_tracker lunch mail
		maintenance mass_mailing membership mrp note payment phone_validation
		point_of_sale portal procurement product project purchase rating
		report resource sale sale_management sale_stock sales_team sms
		snailmail stock survey uom utm web web_editor web_kanban web_tour
		website website_sale`) {
		coreAddons[name] = true
	}
}

// IsCoreAddon reports whether name is part of the Odoo core distribution.
func IsCoreAddon(name string) bool {
	return coreAddons[name]
}
