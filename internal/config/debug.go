package config

import "os"

func IsDebug() bool {
	return os.Getenv("FALCON_DEBUG") == "1"
}
