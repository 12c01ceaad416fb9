package config

import (
	"fmt"
	"net"
	"scorehub/utils"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// Session status transitions are published per policy year so that downstream
// consumers (club display boards, notification bots) can replay a whole season.

func sessionTopic(policyYear int) string {
	return fmt.Sprintf("session-events-%d", policyYear)
}

func CreateTopic(policyYear int) error {
	broker := Env().KafkaBroker
	if broker == "" {
		return fmt.Errorf("KAFKA_BROKER environment variable not set")
	}

	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return err
	}
	defer utils.Closer(conn)()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer utils.Closer(controllerConn)()

	topicConfig := kafka.TopicConfig{
		Topic:             sessionTopic(policyYear),
		NumPartitions:     1,
		ReplicationFactor: 1,
		ConfigEntries: []kafka.ConfigEntry{
			{
				ConfigName:  "compression.type",
				ConfigValue: "zstd",
			},
			// one season of retention
			{
				ConfigName:  "retention.ms",
				ConfigValue: "31536000000",
			},
		},
	}

	return controllerConn.CreateTopics(topicConfig)
}

func GetWriter(policyYear int) (*kafka.Writer, error) {
	broker := Env().KafkaBroker
	if broker == "" {
		return nil, fmt.Errorf("KAFKA_BROKER environment variable not set")
	}
	if err := CreateTopic(policyYear); err != nil {
		return nil, err
	}
	return kafka.NewWriter(kafka.WriterConfig{
		Brokers:          []string{broker},
		Topic:            sessionTopic(policyYear),
		CompressionCodec: kafka.Zstd.Codec(),
	}), nil
}
