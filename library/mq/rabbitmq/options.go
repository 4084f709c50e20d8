package rabbitmq

import (
	"fmt"
	"net/url"
)

// Options is the broker connection.
type Options struct {
	Host     string
	Port     string
	Username string
	Password string
	VHost    string
}

func DefaultOptions() Options {
	return Options{
		Host:     "localhost",
		Port:     "5672",
		Username: "guest",
		Password: "guest",
		VHost:    "/",
	}
}

// BuildURL 构建RabbitMQ连接URL
func (o Options) BuildURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/%s",
		url.QueryEscape(o.Username),
		url.QueryEscape(o.Password),
		o.Host,
		o.Port,
		url.PathEscape(o.VHost), // 仅对VHost做路径编码
	)
}

// PublisherOptions selects where events go. An empty Exchange publishes to the default exchange.
type PublisherOptions struct {
	Exchange     string
	ExchangeType string
	RoutingKey   string
	Mandatory    bool
}

// 默认生产者选项
func DefaultPublisherOptions() PublisherOptions {
	return PublisherOptions{
		Exchange:     "",
		ExchangeType: "topic",
		RoutingKey:   "",
		Mandatory:    false,
	}
}
