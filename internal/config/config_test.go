package config_test

import (
	"testing"
	"time"

	"github.com/okian/smoothiebar/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.APIBaseURL, convey.ShouldEqual, "http://localhost:8000")
			convey.So(cfg.LoaderConcurrency, convey.ShouldEqual, 1)
			convey.So(cfg.AllowedOrigins, convey.ShouldResemble, []string{"http://localhost:3000"})
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 15*time.Second)
			convey.So(cfg.CatalogReload(), convey.ShouldEqual, time.Duration(0))
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
