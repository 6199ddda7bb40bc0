// Package messaging is a small broker-agnostic publish/consume API.
//
// Use cases depend on Publisher or Consumer; the driver (NATS, Kafka, or the
// in-process memory broker for single-node and test setups) is picked from
// configuration by NewFromDriver.
package messaging
