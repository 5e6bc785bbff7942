package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Data.ProductsPath == "" {
		cfg.Data.ProductsPath = "./data/products.csv"
	}
	if cfg.Data.PurchasesPath == "" {
		cfg.Data.PurchasesPath = "./data/dataset.csv"
	}
	if cfg.Data.DatabasePath == "" {
		cfg.Data.DatabasePath = "./data/susume.db"
	}
	if cfg.Data.ArtifactPath == "" {
		cfg.Data.ArtifactPath = "./data/similarity.bin"
	}
	if cfg.Data.BleveIndexPath == "" {
		cfg.Data.BleveIndexPath = "./data/indices/products.bleve"
	}
	if cfg.Data.OutputDir == "" {
		cfg.Data.OutputDir = "./results"
	}
	if cfg.Embedding.Strategy == "" {
		cfg.Embedding.Strategy = "semantic"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "./data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.VocabularySize == 0 {
		cfg.Embedding.VocabularySize = 1000
	}
	if cfg.Recommend.TopCategories == 0 {
		cfg.Recommend.TopCategories = 2
	}
	if cfg.Recommend.TopN == 0 {
		cfg.Recommend.TopN = 2
	}
	if cfg.Recommend.ColdStartLimit == 0 {
		cfg.Recommend.ColdStartLimit = 5
	}
	if cfg.Generator.NumProducts == 0 {
		cfg.Generator.NumProducts = 80
	}
	if cfg.Generator.NumCustomers == 0 {
		cfg.Generator.NumCustomers = 500
	}
	if cfg.Generator.NumEntries == 0 {
		cfg.Generator.NumEntries = 7000
	}
	if cfg.Generator.HighSpenderRatio == 0 {
		cfg.Generator.HighSpenderRatio = 0.1
	}
	if cfg.Generator.OccasionalRatio == 0 {
		cfg.Generator.OccasionalRatio = 0.3
	}
	if cfg.Generator.LostRatio == 0 {
		cfg.Generator.LostRatio = 0.1
	}
	if cfg.Generator.Seed == 0 {
		cfg.Generator.Seed = 35
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
}
