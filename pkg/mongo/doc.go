// Package mongo opens a MongoDB client with the v2 driver.
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := mongostore.New(client.Database(cfg.Database))
package mongo
