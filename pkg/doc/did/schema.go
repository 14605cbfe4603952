/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

// nolint:lll
const schemaV1 = `{
  "required": [
    "id"
  ],
  "properties": {
    "@context": {
      "oneOf": [
        {
          "type": "string",
          "pattern": "^https://(w3id.org|www.w3.org/ns)/did/v1$"
        },
        {
          "type": "array",
          "items": [
            {
              "type": "string",
              "pattern": "^https://(w3id.org|www.w3.org/ns)/did/v1$"
            }
          ],
          "uniqueItems": true,
          "additionalItems": {
            "oneOf": [
              {
                "type": "object"
              },
              {
                "type": "string"
              }
            ]
          }
        }
      ]
    },
    "id": {
      "type": "string",
      "pattern": "^did:"
    },
    "verificationMethod": {
      "type": "array",
      "items": {
        "$ref": "#/definitions/verificationMethod"
      }
    },
    "authentication": {
      "type": "array",
      "items": {
        "oneOf": [
          {
            "$ref": "#/definitions/verificationMethod"
          },
          {
            "type": "string"
          }
        ]
      }
    },
    "keyAgreement": {
      "type": "array",
      "items": {
        "oneOf": [
          {
            "$ref": "#/definitions/verificationMethod"
          },
          {
            "type": "string"
          }
        ]
      }
    },
    "service": {
      "type": "array",
      "items": {
        "$ref": "#/definitions/service"
      }
    }
  },
  "definitions": {
    "verificationMethod": {
      "required": [
        "id",
        "type"
      ],
      "type": "object",
      "properties": {
        "id": {
          "type": "string"
        },
        "type": {
          "type": "string"
        },
        "controller": {
          "type": "string"
        }
      }
    },
    "service": {
      "required": [
        "id",
        "type",
        "serviceEndpoint"
      ],
      "type": "object",
      "properties": {
        "id": {
          "type": "string"
        },
        "type": {
          "type": "string"
        }
      }
    }
  }
}`
