package objects

import (
	"github.com/oarkflow/pinauth/pkg/contracts"
)

var (
	Manager contracts.Manager
	Config  contracts.Config
)
