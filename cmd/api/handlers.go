package main

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rjrjensen/vending-machine/internal/application"
	"github.com/rjrjensen/vending-machine/internal/domain"
	"github.com/rjrjensen/vending-machine/pkg/errors"
	"github.com/rjrjensen/vending-machine/pkg/kafka"
	"github.com/rjrjensen/vending-machine/pkg/logging"
	"github.com/rjrjensen/vending-machine/pkg/middleware"
)

// Config holds application configuration
type Config struct {
	ServerAddr    string
	MachineID     string
	Capacity      int
	PlanogramPath string
	KafkaEnabled  bool
	Kafka         *kafka.Config
}

func loadConfig() *Config {
	kafkaConfig := kafka.DefaultConfig()
	if brokers := kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "")); len(brokers) > 0 {
		kafkaConfig.Brokers = brokers
	}
	kafkaConfig.ClientID = serviceName

	return &Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		MachineID:     getEnv("MACHINE_ID", "vm-001"),
		Capacity:      getEnvInt("VENDING_CAPACITY", domain.DefaultCapacity),
		PlanogramPath: getEnv("PLANOGRAM_PATH", ""),
		KafkaEnabled:  getEnvBool("KAFKA_ENABLED", false),
		Kafka:         kafkaConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

type vendRequest struct {
	Cash string `json:"cash" binding:"required,money"`
}

type restockItemRequest struct {
	Name  string `json:"name" binding:"required,item_name"`
	Price string `json:"price" binding:"required,money"`
}

type restockRequest struct {
	Items []restockItemRequest `json:"items" binding:"required,dive"`
}

func parseSlot(c *gin.Context) (int, *errors.AppError) {
	raw := c.Param("slot")
	slot, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.ErrValidation("slot must be an integer").WithDetail("slot", raw)
	}
	return slot, nil
}

func getMachineHandler(service *application.VendingApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, service.GetMachine(c.Request.Context()))
	}
}

func getSlotHandler(service *application.VendingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger)

		slot, appErr := parseSlot(c)
		if appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		dto, err := service.GetSlot(c.Request.Context(), application.GetSlotQuery{Slot: slot})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, dto)
	}
}

func vendHandler(service *application.VendingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger)

		slot, appErr := parseSlot(c)
		if appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		var req vendRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		result, err := service.Vend(c.Request.Context(), application.VendCommand{
			Slot: slot,
			Cash: req.Cash,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func restockHandler(service *application.VendingApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger)

		var req restockRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		cmd := application.RestockCommand{Items: make([]application.RestockItem, 0, len(req.Items))}
		for _, item := range req.Items {
			cmd.Items = append(cmd.Items, application.RestockItem{Name: item.Name, Price: item.Price})
		}

		result, err := service.Restock(c.Request.Context(), cmd)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
