package upstream

import (
	"fmt"

	"weft/werror"
)

func errNoTargets(strategyName string) error {
	return werror.New(werror.KindConfigInvalid, "upstream: no targets available for "+strategyName+" selection")
}

func errPreferredTargetNotFound(name string) error {
	return werror.New(werror.KindConfigInvalid, "upstream: preferred target "+name+" not found among available targets")
}

func errNoHealthyTargets(total int) error {
	return werror.New(werror.KindConfigInvalid, fmt.Sprintf("upstream: no healthy targets available (total targets: %d)", total))
}
