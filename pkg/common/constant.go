package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyIOTDBType string = "IOT_DB_TYPE"
	EnvKeyIOTDbPath string = "IOT_DB_PATH"
	EnvKeyIOTDbDSN  string = "IOT_DB_DSN"

	EnvKeyIOTHttpHostPort string = "IOT_HTTP_HOST_PORT"
	EnvKeyIOTGrpcHostPort string = "IOT_GRPC_HOST_PORT"

	EnvKeyIOTDefaultRate  string = "IOT_DEFAULT_RATE"
	EnvKeyIOTDefaultBurst string = "IOT_DEFAULT_BURST"

	EnvKeyIOTMqttBroker            string = "IOT_MQTT_BROKER"
	EnvKeyIOTKafkaBrokers          string = "IOT_KAFKA_BROKERS"
	EnvKeyIOTKafkaTopicTransitions string = "IOT_KAFKA_TOPIC_TRANSITIONS"
	EnvKeyIOTRedisAddr             string = "IOT_REDIS_ADDR"
	EnvKeyIOTRedisPassword         string = "IOT_REDIS_PASSWORD"
	EnvKeyIOTAdminToken            string = "IOT_ADMIN_TOKEN"

	EnvKeyIAQConfigFile string = "IAQ_CONFIG_FILE"
	EnvKeyIAQLogsDir    string = "IAQ_LOGS_DIR"

	DefaultKafkaTopicTransitions    string = "iaq.alerts.transitions"
	DefaultMqttReadingsSubscription string = "sensors/+/readings"

	LoggerNameIOTCore       string = "iot_core"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameMqttIngest    string = "mqtt_ingest"
	LoggerNameNotify        string = "notify"
	LoggerNameStateCache    string = "state_cache"
	LoggerNameCLI           string = "aqctl"

	LoggerFieldIOTCategory     string = "category"
	LoggerCategoryIOTReading   string = "reading"
	LoggerCategoryIOTSensor    string = "sensor"
	LoggerCategoryIOTAlert     string = "alert"
	LoggerCategoryIOTIngest    string = "ingest"
	LoggerCategoryIOTForecast  string = "forecast"
	LoggerCategoryIOTRetention string = "retention"
	LoggerCategoryIOTSimulator string = "simulator"
	LoggerFieldCorrelationID   string = "correlation_id"
)
