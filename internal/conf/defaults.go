// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("webserver.host", "0.0.0.0")
	viper.SetDefault("webserver.port", 8080)
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "coralwatch-access.log")

	viper.SetDefault("output.sqlite.path", "coralwatch.db")

	viper.SetDefault("upload.path", "uploads/")
	viper.SetDefault("upload.maxsizemb", 32)
	viper.SetDefault("upload.serveimages", true)
}
