package flags

import "flag"

// CfgPathFlag is the path to the configuration file.
var CfgPathFlag string

// defaultConfigFilePath is the default path for the configuration file.
const defaultConfigFilePath = "./config.toml"

func init() {
	flag.StringVar(&CfgPathFlag, "config", defaultConfigFilePath, "path to config file")
	flag.Parse()
}
