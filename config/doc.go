// Package config provides configuration loading for the Sparkplug core.
//
// Configuration is loaded from a YAML file with environment variable
// overrides for deployment-sensitive values (broker address, credentials).
//
// # Loading Order
//
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SPARKPLUG_SECTION_KEY
// For example: SPARKPLUG_MQTT_HOST, SPARKPLUG_MQTT_PASSWORD
//
// # Structure
//
//	mqtt:
//	  broker:
//	    host: "localhost"
//	    port: 1883
//	    client_id: "edge-line1"
//	  auth:
//	    username: ""
//	    password: ""
//	  qos: 0
//	sparkplug:
//	  version: "spBv1.0"
//	  group_id: "FactoryA"
//	  edge_node_id: "Line1"        # edge role
//	  primary_host_id: ""          # host role
//	payload:
//	  compress: false
//	  algorithm: "GZIP"
//	logging:
//	  level: "info"
//	  format: "json"
//
// An edge node configuration requires sparkplug.group_id and
// sparkplug.edge_node_id; a host configuration requires
// sparkplug.primary_host_id. A file providing neither identity fails
// validation at load time.
package config
