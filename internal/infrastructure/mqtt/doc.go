// Package mqtt publishes configuration load outcomes to an MQTT broker.
//
// Each load is published retained on <prefix>/load/<configuration>, so a
// subscriber joining later still sees the last outcome. The tool's own
// presence is announced on <prefix>/status, with a Last Will that marks it
// offline if the process dies before Close.
//
// # Security Considerations
//
//   - TLS is required for production brokers (cfg.Broker.TLS=true)
//   - Credentials come from config or XMLRUNTIME_MQTT_* environment variables
//   - Payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, log)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(client.Topics().Load("station"), report)
package mqtt
