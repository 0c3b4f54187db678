// Package config provides configuration management for ems.
//
// Configuration is assembled in three layers, later layers winning:
//
//  1. built-in defaults (Default), matching a local development deployment
//  2. the YAML file ~/.config/ems/config.yaml, or the file given with --config
//  3. environment variables prefixed with EMS_
//
// # File Format
//
//	keycloak:
//	  url: http://localhost:8080
//	  realm: employee-realm
//	  clientId: ems-app
//	app:
//	  origin: http://localhost:3000
//	gateway:
//	  url: http://localhost:8888
//	  timeout: 30s
//	session:
//	  storage: file          # or keyring
//	  pollInterval: 100ms
//	login:
//	  timeout: 5m
//	log:
//	  level: info
//	  format: text
//
// # Environment Overrides
//
//	EMS_KEYCLOAK_URL, EMS_REALM, EMS_CLIENT_ID, EMS_ISSUER,
//	EMS_APP_ORIGIN, EMS_GATEWAY_URL, EMS_GATEWAY_TIMEOUT,
//	EMS_SESSION_STORAGE, EMS_SESSION_PATH, EMS_KEYRING_SERVICE,
//	EMS_POLL_INTERVAL, EMS_LOGIN_TIMEOUT, EMS_LOG_LEVEL, EMS_LOG_FORMAT
//
// The application origin must be the one registered as a valid redirect
// URI for the client in the realm; ems listens on its host and port during
// a login.
package config
