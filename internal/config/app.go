package config

type AppConfig struct {
	Server ServerConfig
	Gen    GenConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	genCfg, err := LoadGen()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Gen:    genCfg,
		Log:    logCfg,
	}, nil
}
