package env

import (
	"strings"

	"github.com/spf13/viper"
)

func init() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// SetDefault registers a fallback value for an env var
func SetDefault(name string, value any) {
	viper.SetDefault(name, value)
}

// GetString returns the string value of an env var
func GetString(name string) string {
	return viper.GetString(name)
}

// GetInt returns the int value of an env var
func GetInt(name string) int {
	return viper.GetInt(name)
}
