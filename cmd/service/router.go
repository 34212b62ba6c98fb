package service

import (
	"github.com/manuscripta/apm/app/response"
	"github.com/manuscripta/apm/cmd/service/handler"
	"github.com/manuscripta/apm/cmd/service/middleware"
	"github.com/manuscripta/apm/pkg/metrics"
)

func setupHttpRouter(s *handler.HttpSrv) {
	if err := handler.RegisterValidators(s.Core); err != nil {
		panic(err)
	}

	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	s.Engine.Use(middleware.I18n(), response.NewResponse(), middleware.Recovery)
	s.Engine.Use(middleware.Cors)
	s.Engine.Use(middleware.AcceptLanguage(), middleware.Editor(), middleware.Metrics(s.Core))
	writeLimit := middleware.UseLimit(s.Core, "write")

	apiV1 := s.Engine.Group("/api/v1")
	{
		docs := apiV1.Group("/docs/:docid")
		{
			docs.GET("", s.GetDocInfo)
			docs.GET("/pages", s.GetTranscribedPages)
			docs.GET("/chunkmap", s.GetDocChunkMap)
		}

		pages := apiV1.Group("/pages/:pageid")
		{
			pages.PUT("/settings", middleware.RequireEditor, writeLimit, s.UpdatePageSettings)
			pages.GET("/columns/:col/elements", s.GetColumnElements)
			pages.GET("/columns/:col/versions", s.GetColumnVersions)
			pages.POST("/columns/:col/save", middleware.RequireEditor, writeLimit, s.SaveColumn)
		}

		apiV1.DELETE("/elements/:id", middleware.RequireEditor, writeLimit, s.DeleteElement)

		versions := apiV1.Group("/versions")
		{
			versions.GET("/recent", s.GetRecentVersions)
			versions.POST("/:id/publish", middleware.RequireEditor, s.PublishVersion)
			versions.POST("/:id/unpublish", middleware.RequireEditor, s.UnPublishVersion)
		}

		chunks := apiV1.Group("/chunks/:workid/:chunk")
		{
			chunks.GET("/witnesses", s.GetWitnessesForChunk)
			chunks.GET("/witness/:docid/:lwid", s.GetTranscriptionWitness)
		}
	}
}
