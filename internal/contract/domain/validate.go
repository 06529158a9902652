package domain

import (
	"errors"
	"fmt"

	catalogdomain "github.com/smallbiznis/solara/internal/catalog/domain"
	pricingdomain "github.com/smallbiznis/solara/internal/pricing/domain"
)

var (
	ErrContractNotFound = errors.New("contract_not_found")
	ErrUnknownModule    = errors.New("unknown_module")
	ErrUnknownAddon     = errors.New("unknown_addon")
	ErrModuleExcluded   = errors.New("module_excluded_by_package")
	ErrExclusiveModules = errors.New("modules_mutually_exclusive")
	ErrAddonRequiresPro = errors.New("addon_requires_pro_package")
)

// ValidateModuleSelection checks a proposed selection against the catalog:
// every code must exist, no module may be excluded by the chosen package, and
// no two selected modules may be declared mutually exclusive. The composer
// trusts its input, so both the UI and the HTTP layer call this before a
// contract is saved.
func ValidateModuleSelection(catalog *catalogdomain.Catalog, packageCode string, moduleCodes []string, addonCodes []string) error {
	pkg, ok := catalog.Package(packageCode)
	if !ok {
		return fmt.Errorf("%w: %s", pricingdomain.ErrUnknownPackage, packageCode)
	}

	excluded := map[string]bool{}
	for _, code := range pkg.ExcludedModules {
		excluded[code] = true
	}

	selected := map[string]bool{}
	for _, code := range moduleCodes {
		module, ok := catalog.Module(code)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownModule, code)
		}
		if excluded[code] {
			return fmt.Errorf("%w: %s not available on %s", ErrModuleExcluded, code, packageCode)
		}
		selected[module.Code] = true
	}

	for _, code := range moduleCodes {
		module, _ := catalog.Module(code)
		for _, other := range module.ExclusiveWith {
			if selected[other] {
				return fmt.Errorf("%w: %s and %s", ErrExclusiveModules, code, other)
			}
		}
	}

	for _, code := range addonCodes {
		addon, ok := catalog.Addon(code)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownAddon, code)
		}
		if addon.RequiresProAccess && pkg.Kind == catalogdomain.PackageStarter {
			return fmt.Errorf("%w: %s", ErrAddonRequiresPro, code)
		}
	}

	return nil
}
