// Package telemetry holds recent sensor readings published by devices
// on the monitoring topic.
//
// Device firmware is not consistent about payload shape: some builds
// publish sensor values flat at the top level, others nest them under
// a sensor_data object, and key names drift between firmware versions
// (temp vs temperature). ParseReading accepts all observed shapes and
// normalizes them into one Reading with canonical keys.
//
// The Store keeps a fixed-size ring of readings per device codename
// for the dashboard's live charts; long-term retention goes to the
// time-series database instead.
package telemetry
