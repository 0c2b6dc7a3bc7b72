package common

import (
	"os"
)

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

var serviceInstance string

func GetServiceName() string {
	name := os.Getenv("SERVICE_NAME")
	if name == "" {
		name = "lexgate"
	}
	return name
}

func GetServiceInstance() string {
	if serviceInstance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serviceInstance = hostname
	}
	return serviceInstance
}
