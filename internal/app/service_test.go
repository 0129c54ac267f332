package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/smoothiebar/internal/adapters/repository"
	service "github.com/okian/smoothiebar/internal/app"
	"github.com/okian/smoothiebar/internal/domain/macros"
	"github.com/okian/smoothiebar/internal/domain/model"
	"github.com/okian/smoothiebar/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type fakeStore struct {
	smoothies   []model.Smoothie
	ingredients map[string]model.NutrientProfile
}

func (f *fakeStore) Smoothies(context.Context) ([]model.Smoothie, error) {
	return f.smoothies, nil
}

func (f *fakeStore) Nutrients(_ context.Context, name string) (model.NutrientProfile, bool) {
	p, ok := f.ingredients[name]
	return p, ok
}

func (f *fakeStore) Stats(context.Context) repository.Stats {
	return repository.Stats{Smoothies: len(f.smoothies), Ingredients: len(f.ingredients), LoadedAt: time.Unix(0, 0)}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		smoothies: []model.Smoothie{
			{Title: "Tropical", Image: "/assets/tropical.webp", Ingredients: []string{"1 banana", "1/2 cup mango"}},
		},
		ingredients: map[string]model.NutrientProfile{
			"banana": {Calories: 105, Protein: 1.3, Fat: 0.4, Carbohydrates: 27},
			"mango":  {Calories: 100, Protein: 1.4, Fat: 0.6, Carbohydrates: 25},
		},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should not be started", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("Then catalog reads should fail", func() {
			_, err := svc.Smoothies(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			_, err = svc.CalculateMacros(context.Background(), []string{"1 banana"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_WithStore(t *testing.T) {
	Convey("Given a service over an injected store", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithStore(newFakeStore()), service.WithLogger(logger.Get()))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When listing smoothies", func() {
			list, err := svc.Smoothies(ctx)

			Convey("Then it should return the store's catalog", func() {
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 1)
				So(list[0].Title, ShouldEqual, "Tropical")
			})
		})

		Convey("When calculating macros", func() {
			report, err := svc.CalculateMacros(ctx, []string{"1 banana", "1/2 cup mango"})

			Convey("Then totals should be summed and rounded", func() {
				So(err, ShouldBeNil)
				So(report.Macros, ShouldResemble, model.Macros{Calories: 155, Protein: 2, Fat: 0.7, Carbs: 39.5})
				So(len(report.Ingredients), ShouldEqual, 2)
			})
		})

		Convey("When calculating with an unknown ingredient", func() {
			_, err := svc.CalculateMacros(ctx, []string{"1 cup durian"})

			Convey("Then it should return validation errors", func() {
				var verrs macros.ValidationErrors
				So(errors.As(err, &verrs), ShouldBeTrue)
				So(verrs[0].Index, ShouldEqual, 0)
			})
		})

		Convey("When reading stats", func() {
			stats := svc.GetStats()

			Convey("Then they should describe the catalog", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["smoothies"], ShouldEqual, 1)
				So(stats["ingredients"], ShouldEqual, 2)
				So(stats["loadedAt"], ShouldEqual, "1970-01-01T00:00:00Z")
			})
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given data files on disk", t, func() {
		dir := t.TempDir()
		recipes := filepath.Join(dir, "recipes.json")
		ingredients := filepath.Join(dir, "ingredients.json")
		So(os.WriteFile(recipes, []byte(`{"smoothies":[{"title":"A","image":"a.webp","ingredients":["1 kiwi"]}]}`), 0o600), ShouldBeNil)
		So(os.WriteFile(ingredients, []byte(`{"kiwi":{"calories":42,"protein":0.8,"fat":0.4,"carbohydrates":10}}`), 0o600), ShouldBeNil)

		svc := service.New(service.WithRecipesPath(recipes), service.WithIngredientsPath(ingredients))

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)
			defer svc.Stop()

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
			})

			Convey("And starting twice should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping should mark it stopped", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When the data files are missing", func() {
			broken := service.New(service.WithRecipesPath(filepath.Join(dir, "missing.json")))
			err := broken.Start(context.Background())

			Convey("Then Start should fail with a read error", func() {
				So(errors.Is(err, repository.ErrReadCatalog), ShouldBeTrue)
				So(broken.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}
