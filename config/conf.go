package config

type Confing struct {
	MongoHost string `env:"MONGO_HOST" required:"true"`
	MongoUser string `env:"MONGO_USER" required:"true"`
	MongoPass string `env:"MONGO_PASSWORD"`
	MongoPort int    `env:"MONGO_PORT"`
	JWTSecret string `env:"JWT_SECRET" required:"true"`
	HTTPPort  int    `env:"HTTP_PORT"`
	SeedDev   bool   `env:"SEED_DEV"`
}

func New() (*Confing, error) {
	conf := &Confing{}
	if err := Parse(conf); err != nil {
		return nil, err
	}

	if conf.MongoPort == 0 {
		conf.MongoPort = 27017
	}
	if conf.HTTPPort == 0 {
		conf.HTTPPort = 8888
	}

	return conf, nil
}
