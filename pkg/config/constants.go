package config

const (
	// EnvPrefix is empty because every field carries its fully-qualified
	// PDV_* variable name in its envconfig tag.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
