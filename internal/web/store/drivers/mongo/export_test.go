package mongo

import "go.mongodb.org/mongo-driver/v2/mongo"

// Database exposes the underlying database to tests that seed raw documents.
func (s *Store) Database() *mongo.Database { return s.db }
