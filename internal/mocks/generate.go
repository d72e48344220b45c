package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Provider --dir ../domain/fixture --output domain/fixture --outpkg fixturemock --filename provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Writer --dir ../domain/report --output domain/report --outpkg reportmock --filename writer_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/report --output domain/report --outpkg reportmock --filename repository_mock.go
