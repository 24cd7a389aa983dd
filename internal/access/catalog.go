package access

import (
	"sort"
	"strings"
	"sync"
)

// Permission keys referenced directly in code. The full catalog below covers
// every vertical of the ERP; domain services declare the narrower keys on
// their own routes.
const (
	PermPlatformAdmin = "platform.admin"
	PermAuditRead     = "audit.read"
	PermRoleRead      = "role.read"
	PermRoleManage    = "role.manage"
)

// catalog is the static, versioned permission enumeration. It changes only
// with a deployment; there is no mutation API.
var catalog = []Permission{
	{Key: PermPlatformAdmin, Label: "Platform administration", Description: "Administer tenants, users, roles and bindings"},

	{Key: "tenant.read", Label: "View tenant"},
	{Key: "tenant.settings.manage", Label: "Manage tenant settings"},

	{Key: "customer.create", Label: "Create customers"},
	{Key: "customer.read", Label: "View customers"},
	{Key: "customer.update", Label: "Update customers"},
	{Key: "customer.delete", Label: "Delete customers"},

	{Key: "architect.create", Label: "Create architects"},
	{Key: "architect.read", Label: "View architects"},
	{Key: "architect.update", Label: "Update architects"},
	{Key: "architect.delete", Label: "Delete architects"},

	{Key: "quote.create", Label: "Create quotes"},
	{Key: "quote.read", Label: "View quotes"},
	{Key: "quote.update", Label: "Update quotes"},
	{Key: "quote.send", Label: "Send quotes to customers"},
	{Key: "quote.convert", Label: "Convert quotes into orders"},
	{Key: "quote.delete", Label: "Delete quotes"},

	{Key: "order.create", Label: "Create orders"},
	{Key: "order.read", Label: "View orders"},
	{Key: "order.update", Label: "Update orders"},
	{Key: "order.confirm", Label: "Confirm orders"},
	{Key: "order.cancel", Label: "Cancel orders"},

	{Key: "delivery.create", Label: "Schedule deliveries"},
	{Key: "delivery.read", Label: "View deliveries"},
	{Key: "delivery.update", Label: "Update deliveries"},

	{Key: "stock.create", Label: "Register stock items"},
	{Key: "stock.read", Label: "View stock"},
	{Key: "stock.update", Label: "Adjust stock"},
	{Key: "stock.write", Label: "Move stock", Description: "Reserve and consume stock positions"},

	{Key: "purchase.create", Label: "Create purchase orders"},
	{Key: "purchase.read", Label: "View purchase orders"},
	{Key: "purchase.update", Label: "Update purchase orders"},
	{Key: "purchase.receive", Label: "Receive purchase orders"},

	{Key: "finance.read", Label: "View finance"},
	{Key: "finance.charge", Label: "Create charges"},
	{Key: "finance.payment", Label: "Register payments"},

	{Key: "schedule.read", Label: "View schedule"},
	{Key: "schedule.block", Label: "Block schedule slots"},

	{Key: "sales.report.read", Label: "View sales reports"},
	{Key: "commission.report.read", Label: "View commission reports"},

	{Key: PermRoleRead, Label: "View roles"},
	{Key: PermRoleManage, Label: "Manage roles"},

	{Key: PermAuditRead, Label: "View audit trail"},
}

var (
	catalogIndexOnce sync.Once
	catalogIndex     map[string]Permission
)

func index() map[string]Permission {
	catalogIndexOnce.Do(func() {
		catalogIndex = make(map[string]Permission, len(catalog))
		for _, p := range catalog {
			catalogIndex[p.Key] = p
		}
	})
	return catalogIndex
}

// Catalog returns a copy of every permission entry.
func Catalog() []Permission {
	out := make([]Permission, len(catalog))
	copy(out, catalog)
	return out
}

// Known reports whether key exists in the catalog.
func Known(key string) bool {
	_, ok := index()[key]
	return ok
}

// Keys returns every catalog key, sorted.
func Keys() []string {
	out := make([]string, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p.Key)
	}
	sort.Strings(out)
	return out
}

// Group is a catalog slice sharing one module prefix, used by administration
// UIs for bulk toggling.
type Group struct {
	Module      string       `json:"module"`
	Permissions []Permission `json:"permissions"`
}

// Groups returns the catalog grouped by module prefix, the substring before
// the first '.' in the key. Groups and their members are sorted by key.
func Groups() []Group {
	byModule := make(map[string][]Permission)
	for _, p := range catalog {
		module := p.Key
		if i := strings.Index(p.Key, "."); i > 0 {
			module = p.Key[:i]
		}
		byModule[module] = append(byModule[module], p)
	}

	modules := make([]string, 0, len(byModule))
	for m := range byModule {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	groups := make([]Group, 0, len(modules))
	for _, m := range modules {
		perms := byModule[m]
		sort.Slice(perms, func(i, j int) bool { return perms[i].Key < perms[j].Key })
		groups = append(groups, Group{Module: m, Permissions: perms})
	}
	return groups
}
